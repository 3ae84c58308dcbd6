package memory

import (
	"testing"

	"storyforge/internal/store/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, New())
}
