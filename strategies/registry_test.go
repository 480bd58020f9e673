package strategies

import (
	"testing"

	"fxbot/internal/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			f, err := Resolve(name)
			require.NoError(t, err)
			s := f("BTC-USDT", engine.SandboxExchange, "1h", nil)
			assert.Equal(t, name, s.Name())
		})
	}
}

func TestResolveUnknown(t *testing.T) {
	_, err := Resolve("Martingale")
	assert.ErrorIs(t, err, engine.ErrUnknownStrategy)
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"DonchianStrategy", "GoldenCrossStrategy", "SimpleStrategy"}, Names())
}
