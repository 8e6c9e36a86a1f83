package domain

import "strings"

const (
	KeyPrefix = "file_"
	// DefaultVerifyToken is the deep-link argument that registers a verification.
	DefaultVerifyToken = "verified"
)

// DeriveKey returns the stable lookup key for a media object.
func DeriveKey(m *Media) string {
	return KeyPrefix + m.UniqueID
}

type DeepLinkKind int

const (
	DeepLinkNone DeepLinkKind = iota
	DeepLinkVerify
	DeepLinkContent
)

type DeepLink struct {
	Kind DeepLinkKind
	Key  string
}

// ParseDeepLink classifies the argument of the start command.
func ParseDeepLink(arg, verifyToken string) DeepLink {
	arg = strings.TrimSpace(arg)
	if i := strings.IndexAny(arg, " \t\n"); i >= 0 {
		arg = arg[:i]
	}
	switch {
	case arg == "":
		return DeepLink{Kind: DeepLinkNone}
	case arg == verifyToken:
		return DeepLink{Kind: DeepLinkVerify}
	default:
		return DeepLink{Kind: DeepLinkContent, Key: arg}
	}
}
