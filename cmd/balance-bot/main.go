package main

import (
	"log"

	corecmd "github.com/chimchimster/balance-bot/core/cmd"

	"github.com/chimchimster/balance-bot/bot"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config/balance-bot.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return bot.LoadConfig(path)
		},
		Bootstrap: func(cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			return bot.Bootstrap(cfg.(*bot.AppConfig))
		},
	})
	if err != nil {
		log.Fatalf("balance-bot: %v", err)
	}
}
