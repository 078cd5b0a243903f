package util

import (
	"fmt"
	"strings"
)

// JoinString is strings.Join for anything that can be printed
func JoinString[S fmt.Stringer](elems []S, sep string) string {
	strs := make([]string, len(elems))
	for i, elem := range elems {
		strs[i] = elem.String()
	}
	return strings.Join(strs, sep)
}
