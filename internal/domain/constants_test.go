package domain_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/localdemo/docker-k8s-helm-local-demo/internal/domain"
)

func TestRootHTMLIsSingleAnchor(t *testing.T) {
	assert.True(t, strings.HasPrefix(domain.RootHTML, `<a href="`))
	assert.True(t, strings.HasSuffix(domain.RootHTML, `</a>`))
	assert.Contains(t, domain.RootHTML, `href="`+domain.RepositoryURL+`"`)
	assert.Contains(t, domain.RootHTML, ">"+domain.LinkText+"<")
}

func TestDefaultPortInRange(t *testing.T) {
	assert.Equal(t, 6969, domain.DefaultPort)
	assert.Greater(t, domain.DefaultPort, 1023, "default port must not need privileges")
	assert.LessOrEqual(t, domain.DefaultPort, 65535)
}

func TestShutdownFitsGracePeriod(t *testing.T) {
	const terminationGracePeriod = 30
	total := domain.ShutdownDrainDelay + domain.ShutdownHTTPTimeout
	assert.LessOrEqual(t, total.Seconds(), float64(terminationGracePeriod))
}
