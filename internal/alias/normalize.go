package alias

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tier is one normalization strategy in the lookup cascade.
type Tier int

const (
	TierIdentity Tier = iota
	TierLowercased
	TierUnspaced
	TierAlphanumeric
	TierASCII
	TierNicknameUnspaced
	TierNicknameAlphanumeric
	TierNicknameASCII

	tierCount
)

// Tiers returns every tier in lookup order, least lossy first.
func Tiers() []Tier {
	out := make([]Tier, tierCount)
	for i := range out {
		out[i] = Tier(i)
	}
	return out
}

func (t Tier) String() string {
	switch t {
	case TierIdentity:
		return "identity"
	case TierLowercased:
		return "lowercased"
	case TierUnspaced:
		return "lowercased_and_unspaced"
	case TierAlphanumeric:
		return "alphanumeric_only"
	case TierASCII:
		return "alphanumeric_and_ascii"
	case TierNicknameUnspaced:
		return "nickname_lowercased_and_unspaced"
	case TierNicknameAlphanumeric:
		return "nickname_alphanumeric_only"
	case TierNicknameASCII:
		return "nickname_alphanumeric_and_ascii"
	}
	return "unknown"
}

// IsNickname reports whether the tier is filled from nickname rows only.
func (t Tier) IsNickname() bool {
	return t >= TierNicknameUnspaced && t < tierCount
}

// Lowercase folds case and keeps whitespace.
func Lowercase(s string) string {
	return strings.ToLower(s)
}

// Unspaced folds case and removes every whitespace run.
func Unspaced(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "")
}

// Alphanumeric keeps only letters and digits of the unspaced form. Kana and kanji are letters,
// and so are the vowel signs of Indic scripts.
func Alphanumeric(s string) string {
	return keepAlphanumeric(Unspaced(s))
}

// ASCII keeps only the ASCII code points of the alphanumeric form.
func ASCII(s string) string {
	return keepASCII(Alphanumeric(s))
}

func keepAlphanumeric(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.Is(unicode.Other_Alphabetic, r) {
			return r
		}
		return -1
	}, s)
}

func keepASCII(s string) string {
	return strings.Map(func(r rune) rune {
		if r < utf8.RuneSelf {
			return r
		}
		return -1
	}, s)
}

// Keys holds every derived key of one string.
type Keys struct {
	Identity     string
	Lowercased   string
	Unspaced     string
	Alphanumeric string
	ASCII        string
}

// Derive computes all keys of s.
func Derive(s string) Keys {
	unspaced := Unspaced(s)
	alnum := keepAlphanumeric(unspaced)
	return Keys{
		Identity:     s,
		Lowercased:   strings.ToLower(s),
		Unspaced:     unspaced,
		Alphanumeric: alnum,
		ASCII:        keepASCII(alnum),
	}
}

// For returns the key looked up at tier t. Nickname tiers reuse the matching main derivation.
func (k Keys) For(t Tier) string {
	switch t {
	case TierIdentity:
		return k.Identity
	case TierLowercased:
		return k.Lowercased
	case TierUnspaced, TierNicknameUnspaced:
		return k.Unspaced
	case TierAlphanumeric, TierNicknameAlphanumeric:
		return k.Alphanumeric
	case TierASCII, TierNicknameASCII:
		return k.ASCII
	}
	return ""
}
