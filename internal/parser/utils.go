package parser

import "slices"

// appendUnique 등장 순서를 유지하며 중복 없이 추가
func appendUnique(list []string, v string) []string {
	if slices.Contains(list, v) {
		return list
	}
	return append(list, v)
}
