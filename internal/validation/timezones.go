package validation

// Timezones is the set of IANA zones a host may pick.
var Timezones = []string{
	"UTC",
	"America/New_York",
	"America/Chicago",
	"America/Denver",
	"America/Los_Angeles",
	"America/Toronto",
	"America/Mexico_City",
	"America/Sao_Paulo",
	"Europe/London",
	"Europe/Paris",
	"Europe/Berlin",
	"Europe/Madrid",
	"Europe/Rome",
	"Europe/Amsterdam",
	"Europe/Brussels",
	"Europe/Vienna",
	"Europe/Warsaw",
	"Europe/Stockholm",
	"Europe/Athens",
	"Europe/Istanbul",
	"Asia/Dubai",
	"Asia/Kolkata",
	"Asia/Singapore",
	"Asia/Hong_Kong",
	"Asia/Tokyo",
	"Asia/Seoul",
	"Asia/Shanghai",
	"Asia/Bangkok",
	"Asia/Jakarta",
	"Australia/Sydney",
	"Australia/Melbourne",
	"Pacific/Auckland",
}

var allowedTimezones = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Timezones))
	for _, tz := range Timezones {
		m[tz] = struct{}{}
	}
	return m
}()

func IsAllowedTimezone(tz string) bool {
	_, ok := allowedTimezones[tz]
	return ok
}
