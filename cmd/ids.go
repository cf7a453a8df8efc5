package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

func parseRecordID(raw, what string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s id must be a positive number, got %q", what, raw)
	}

	return id, nil
}

// resolveMemberID falls back to the acting member when no id was given.
func resolveMemberID(ctx context.Context, app *app, requested int) (int, error) {
	if requested < 0 {
		return 0, fmt.Errorf("member id must be positive, got %d", requested)
	}
	if requested > 0 {
		return requested, nil
	}

	id, err := app.identity.ResolveMemberID(ctx)
	if err != nil {
		return 0, fmt.Errorf("resolve acting member: %w", err)
	}

	return id, nil
}
