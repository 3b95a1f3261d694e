package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	ld "github.com/launchdarkly/go-server-sdk/v7"
	"github.com/poofware/society-service/pkg/utils"
)

type flagSource interface {
	Bool(key string, def bool) bool
	String(key, def string) string
	Close() error
}

type ldFlagSource struct {
	client *ld.LDClient
	ctx    ldcontext.Context
}

func newLDFlagSource(sdkKey, kind, key string) (*ldFlagSource, error) {
	client, err := ld.MakeClient(sdkKey, LDConnectionTimeout)
	if err != nil {
		return nil, err
	}
	if kind == "" {
		kind = "service"
	}
	if key == "" {
		key = AppName
	}
	return &ldFlagSource{
		client: client,
		ctx:    ldcontext.NewWithKind(ldcontext.Kind(kind), key),
	}, nil
}

func (s *ldFlagSource) Bool(key string, def bool) bool {
	v, err := s.client.BoolVariation(key, s.ctx, def)
	if err != nil {
		utils.Logger.WithError(err).Warnf("Error retrieving %s flag, using default %t", key, def)
		return def
	}
	return v
}

func (s *ldFlagSource) String(key, def string) string {
	v, err := s.client.StringVariation(key, s.ctx, def)
	if err != nil {
		utils.Logger.WithError(err).Warnf("Error retrieving %s flag, using default %q", key, def)
		return def
	}
	return v
}

func (s *ldFlagSource) Close() error {
	return s.client.Close()
}

// envFlagSource reads flags from upper-cased env vars, e.g.
// sendgrid_sandbox_mode → SENDGRID_SANDBOX_MODE.
type envFlagSource struct{}

func (envFlagSource) Bool(key string, def bool) bool {
	raw := os.Getenv(strings.ToUpper(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		utils.Logger.Warnf("Invalid boolean %q for %s, using default %t", raw, strings.ToUpper(key), def)
		return def
	}
	return v
}

func (envFlagSource) String(key, def string) string {
	if raw := os.Getenv(strings.ToUpper(key)); raw != "" {
		return raw
	}
	return def
}

func (envFlagSource) Close() error { return nil }
