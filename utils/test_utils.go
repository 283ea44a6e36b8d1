package utils

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// 比较期待值和实际值的字符串形式
func Expect(t *testing.T, expect string, actual interface{}) {
	t.Helper()
	assert.Equal(t, expect, fmt.Sprint(actual))
}
