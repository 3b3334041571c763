package settings

import (
	"context"
	"os"
	"strings"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/customeros/mailrefresh/interfaces"
	"github.com/customeros/mailrefresh/internal/tracing"
)

const EnvPrefix = "MAILREFRESH"

var _ interfaces.ConfigurationSource = (*ViperSource)(nil)

// ViperSource reads settings from an optional config file, overridden by
// MAILREFRESH_<NAME> environment variables.
type ViperSource struct {
	v *viper.Viper
}

func NewViperSource(path string) (*ViperSource, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var pathErr *os.PathError
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
				return nil, errors.Wrapf(err, "reading settings %s", path)
			}
		}
	}

	return &ViperSource{v: v}, nil
}

// NewViperSourceFrom wraps an already populated viper instance.
func NewViperSourceFrom(v *viper.Viper) *ViperSource {
	return &ViperSource{v: v}
}

// ReadBool returns false for a missing setting.
func (s *ViperSource) ReadBool(ctx context.Context, name string) (bool, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "ViperSource.ReadBool")
	defer span.Finish()
	span.SetTag("setting", name)

	raw := s.v.Get(name)
	if raw == nil {
		return false, nil
	}
	value, err := cast.ToBoolE(raw)
	if err != nil {
		tracing.TraceErr(span, err)
		return false, errors.Wrapf(err, "setting %s is not a boolean", name)
	}
	return value, nil
}

// ReadString returns "" for a missing setting.
func (s *ViperSource) ReadString(ctx context.Context, name string) (string, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "ViperSource.ReadString")
	defer span.Finish()
	span.SetTag("setting", name)

	raw := s.v.Get(name)
	if raw == nil {
		return "", nil
	}
	value, err := cast.ToStringE(raw)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", errors.Wrapf(err, "setting %s is not a string", name)
	}
	return value, nil
}
