package system

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstanceID(t *testing.T) {
	id := InstanceID()
	assert.NotEmpty(t, id)
	assert.Equal(t, id, InstanceID())
	assert.Contains(t, id, fmt.Sprintf("-%d-", os.Getpid()))

	hostname, _ := os.Hostname()
	assert.True(t, strings.HasPrefix(id, hostname))
}
