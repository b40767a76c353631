package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"  Meeting   notes  ", "meeting-notes"},
		{"Café Crème", "cafe-creme"},
		{"Déjà vu!", "deja-vu"},
		{"--already--dashed--", "already-dashed"},
		{"snake_case ok", "snake_case-ok"},
		{"100% done?", "100-done"},
		{"", ""},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, Make(c.in), "input %q", c.in)
	}
}
