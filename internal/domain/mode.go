package domain

import (
	"fmt"
	"strings"
)

type Mode string

const (
	ModeSearch       Mode = "search"
	ModePublicDomain Mode = "pd"
)

// ParseMode принимает и старые имена режимов ("imslp" == search)
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "search", "imslp":
		return ModeSearch, nil
	case "pd", "publicdomain", "public-domain":
		return ModePublicDomain, nil
	}
	return "", fmt.Errorf("%w %q: use \"pd\" or \"search\"", ErrUnknownMode, s)
}

func (m Mode) IsValid() bool {
	switch m {
	case ModeSearch, ModePublicDomain:
		return true
	}
	return false
}

func (m Mode) String() string { return string(m) }

// ModeSettings - сколько страниц собираем и сколько берём с одного варианта запроса
type ModeSettings struct {
	Quota           int
	PerVariantLimit int
}

func (s ModeSettings) Validate() error {
	if s.Quota < 1 || s.Quota > 50 {
		return ErrInvalidQuota
	}
	if s.PerVariantLimit < 1 || s.PerVariantLimit > 20 {
		return ErrInvalidPerVariantLimit
	}
	return nil
}

// Settings возвращает дефолты режима. Для проверки авторских прав страниц меньше:
// каждую ещё надо скачать и разобрать.
func (m Mode) Settings() ModeSettings {
	if m == ModePublicDomain {
		return ModeSettings{Quota: 5, PerVariantLimit: 3}
	}
	return ModeSettings{Quota: 8, PerVariantLimit: 4}
}
