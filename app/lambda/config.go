package lambda

import (
	"errors"
	"fmt"
	"strings"
)

// ProxySource names the kind of event the function is invoked with.
type ProxySource string

const (
	ProxySourceApiGatewayV1 ProxySource = "API_GW_V1"
	ProxySourceApiGatewayV2 ProxySource = "API_GW_V2"
	ProxySourceAlb          ProxySource = "ALB"
)

var ErrInvalidProxySource = errors.New("invalid proxy source")

func (p ProxySource) String() string {
	return string(p)
}

// ParseProxySource accepts a proxy source name in any case. The empty
// string selects API Gateway v2 events.
func ParseProxySource(s string) (ProxySource, error) {
	switch source := ProxySource(strings.ToUpper(strings.TrimSpace(s))); source {
	case "":
		return ProxySourceApiGatewayV2, nil
	case ProxySourceApiGatewayV1, ProxySourceApiGatewayV2, ProxySourceAlb:
		return source, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidProxySource, s)
	}
}

type Config struct {
	// ProxySource is the source of the AWS Lambda event.
	ProxySource ProxySource `conf:"lambda_proxy_source"`
}

// Validate normalizes the proxy source in place.
func (c *Config) Validate() error {
	source, err := ParseProxySource(string(c.ProxySource))
	if err != nil {
		return err
	}

	c.ProxySource = source
	return nil
}
