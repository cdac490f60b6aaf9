package keepalive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultClientParametersDisablesProactivePinging(t *testing.T) {
	assert.Zero(t, DefaultClientParameters.Time)
	assert.Equal(t, 20*time.Second, DefaultClientParameters.Timeout)
	assert.False(t, DefaultClientParameters.PermitWithoutStream)
}

func TestDefaultServerParametersMirrorsClient(t *testing.T) {
	assert.Equal(t, DefaultClientParameters.Timeout, DefaultServerParameters.Timeout)
	assert.Zero(t, DefaultServerParameters.Time)
}

func TestParametersAreIndependentValues(t *testing.T) {
	p := ClientParameters{Time: 5 * time.Second, Timeout: time.Second, PermitWithoutStream: true}
	assert.NotEqual(t, DefaultClientParameters, p)
}
