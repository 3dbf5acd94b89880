package system

import (
	"fmt"
	"os"
	"sync"
	"time"
)

var (
	instanceID   string
	instanceOnce sync.Once
)

// InstanceID identifies this process in status responses. It is generated on
// first use and stable thereafter.
func InstanceID() string {
	instanceOnce.Do(func() {
		instanceID = generateInstanceID()
	})
	return instanceID
}

func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d-%d", hostname, os.Getpid(), time.Now().UnixNano())
}
