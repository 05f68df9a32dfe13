// Package vectorutils is the vector store utility package
package vectorutils

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/packratco/packrat/pkg/vector"
	"github.com/packratco/packrat/pkg/vector/qdrantdrv"
	"github.com/packratco/packrat/pkg/vector/sqlitevec"
)

type NewDriverOpts struct {
	ProviderType string

	// Target is provider-specific: a database path for sqlitevec, a
	// host:port URL for qdrant.
	Target string

	Collection string
	Dimensions uint
	Logger     *zap.Logger
}

func NewDriver(ctx context.Context, o *NewDriverOpts) (vector.Driver, error) {
	switch o.ProviderType {
	case "sqlitevec":
		return sqlitevec.NewDriver(sqlitevec.Config{
			DBPath:     o.Target,
			Dimensions: o.Dimensions,
		}, o.Logger)
	case "qdrant":
		host, port, err := splitHostPort(o.Target)
		if err != nil {
			return nil, err
		}
		return qdrantdrv.NewDriver(ctx, qdrantdrv.Config{
			Host:       host,
			Port:       port,
			Collection: o.Collection,
			Dimensions: uint64(o.Dimensions),
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}

func splitHostPort(target string) (string, int, error) {
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		// Accept bare host:port without a scheme.
		u = &url.URL{Host: target}
	}

	host := u.Hostname()
	if host == "" {
		return "", 0, fmt.Errorf("invalid qdrant target %q", target)
	}

	port := 6334
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return "", 0, fmt.Errorf("invalid qdrant port in %q", target)
		}
	}
	return host, port, nil
}
