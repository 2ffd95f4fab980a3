package apps_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/ecole/apps"
)

func TestArgumentError(t *testing.T) {
	tests := []struct {
		name string
		err  *apps.ArgumentError
		want string
	}{
		{name: "no flag", err: apps.NewArgumentError("aborted"), want: "aborted"},
		{name: "flag", err: apps.NewFlagError("format", `unknown receipt format "docx"`), want: `-format: unknown receipt format "docx"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}
