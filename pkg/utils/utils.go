// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package utils

import (
	"strings"

	"github.com/google/uuid"
	ulid "github.com/oklog/ulid/v2"
)

// GenerateUUID generates uuid without hyphens.
func GenerateUUID() string {
	id, _ := uuid.NewRandom()
	return strings.ReplaceAll(id.String(), "-", "")
}

// GenerateULID generates a time sortable id, used for append-only records.
func GenerateULID() string {
	return ulid.Make().String()
}

// Contains return true if val exist in list, else return false.
func Contains[T comparable](list []T, val T) bool {
	for _, v := range list {
		if v == val {
			return true
		}
	}
	return false
}

// SetOf builds a set from the given values.
func SetOf[T comparable](values ...T) map[T]struct{} {
	set := make(map[T]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// HasSameElement reports whether both lists hold the same elements regardless of order.
func HasSameElement(s1, s2 []string) bool {
	if len(s1) != len(s2) {
		return false
	}
	m1 := make(map[string]bool, len(s1))
	for _, v := range s1 {
		m1[v] = true
	}
	for _, v := range s2 {
		if !m1[v] {
			return false
		}
	}
	return true
}
