package main

import (
	"os"
	"strings"

	"vardrill/domain/drill"
)

func crumbs(items []drill.BreadcrumbItem) string {
	labels := make([]string, 0, len(items))
	for _, item := range items {
		labels = append(labels, item.Label)
	}
	return strings.Join(labels, " → ")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
