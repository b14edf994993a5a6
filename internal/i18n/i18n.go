// Package i18n holds the app's static translation dictionaries.
package i18n

import (
	"sort"
	"strings"
)

// DefaultLang is used when a key is missing in the requested language.
const DefaultLang = "en"

var dictionaries = map[string]map[string]string{
	"en": {
		"app.name":               "Puja",
		"auth.send_otp":          "Send OTP",
		"auth.verify_otp":        "Verify OTP",
		"auth.otp_sent":          "We sent a code to your phone",
		"auth.too_many_attempts": "Too many attempts. Please try again in 30 minutes.",
		"auth.invalid_code":      "That code is not correct",
		"signup.title":           "Create your account",
		"signup.referral_code":   "Referral code (optional)",
		"profile.name":           "Full name",
		"profile.email":          "Email",
		"profile.gender":         "Gender",
		"profile.date_of_birth":  "Date of birth",
		"profile.place_of_birth": "Place of birth",
		"profile.rashi":          "Rashi",
		"mudra.balance":          "Mudra balance",
		"mudra.history":          "Mudra history",
		"referral.invite":        "Invite friends and earn mudras",
		"special_days.title":     "Upcoming special days",
		"special_days.reminder":  "Today is a special day",
		"booking.book_puja":      "Book a puja",
		"search.placeholder":     "Search pujas, mantras, temples",
		"error.generic":          "Something went wrong. Please try again.",
	},
	"hi": {
		"app.name":               "पूजा",
		"auth.send_otp":          "ओटीपी भेजें",
		"auth.verify_otp":        "ओटीपी सत्यापित करें",
		"auth.otp_sent":          "हमने आपके फ़ोन पर कोड भेजा है",
		"auth.too_many_attempts": "बहुत अधिक प्रयास। कृपया 30 मिनट बाद पुनः प्रयास करें।",
		"auth.invalid_code":      "यह कोड सही नहीं है",
		"signup.title":           "अपना खाता बनाएं",
		"signup.referral_code":   "रेफ़रल कोड (वैकल्पिक)",
		"profile.name":           "पूरा नाम",
		"profile.email":          "ईमेल",
		"profile.gender":         "लिंग",
		"profile.date_of_birth":  "जन्म तिथि",
		"profile.place_of_birth": "जन्म स्थान",
		"profile.rashi":          "राशि",
		"mudra.balance":          "मुद्रा शेष",
		"mudra.history":          "मुद्रा इतिहास",
		"referral.invite":        "मित्रों को आमंत्रित करें और मुद्राएं कमाएं",
		"special_days.title":     "आगामी विशेष दिन",
		"special_days.reminder":  "आज एक विशेष दिन है",
		"booking.book_puja":      "पूजा बुक करें",
		"search.placeholder":     "पूजा, मंत्र, मंदिर खोजें",
	},
}

// Supported reports whether lang has a dictionary.
func Supported(lang string) bool {
	_, ok := dictionaries[normalize(lang)]
	return ok
}

// T translates key into lang, falling back to English and then to the key.
func T(lang, key string) string {
	if v, ok := dictionaries[normalize(lang)][key]; ok {
		return v
	}
	if v, ok := dictionaries[DefaultLang][key]; ok {
		return v
	}
	return key
}

// Languages lists the supported language codes in order.
func Languages() []string {
	out := make([]string, 0, len(dictionaries))
	for l := range dictionaries {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Dictionary returns every English key translated into lang.
func Dictionary(lang string) map[string]string {
	out := make(map[string]string, len(dictionaries[DefaultLang]))
	for k := range dictionaries[DefaultLang] {
		out[k] = T(lang, k)
	}
	return out
}

// normalize maps "hi-IN" or "HI" to "hi".
func normalize(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	return lang
}
