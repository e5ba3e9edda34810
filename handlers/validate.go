package handlers

import "regexp"

// Field validation patterns of the registration and address flows.
var (
	nameRe     = regexp.MustCompile(`^[A-Za-zА-Яа-яЁё\s]{1,50}$`)
	emailRe    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	passwordRe = regexp.MustCompile(`^[\w!@#$&()\\-]{8,16}$`)

	cityRe      = regexp.MustCompile(`^[A-Za-zА-Яа-яЁё\s.-]{1,50}$`)
	streetRe    = regexp.MustCompile(`^[\wА-Яа-яЁё\s,.-]{1,255}$`)
	apartmentRe = regexp.MustCompile(`^[\wА-Яа-яЁё-]{1,10}$`)
	regionRe    = regexp.MustCompile(`^[A-Za-zА-Яа-яЁё\s-]{1,50}$`)
	postCodeRe  = regexp.MustCompile(`^\d{6}$`)
	phoneRe     = regexp.MustCompile(`^(\+7|8)\d{7,10}$`)
)
