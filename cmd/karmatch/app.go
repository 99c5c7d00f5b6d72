package main

import (
	"context"

	"karmatch/internal/screen"
	"karmatch/internal/session"
)

func runApp(ctx context.Context, opts *cliOptions, requested screen.Route) error {
	container, err := buildContainer(opts.loadOptions()...)
	if err != nil {
		return err
	}
	defer container.Cleanup()

	if err := container.Ready(); err != nil {
		return err
	}

	start := startRoute(requested, container.Session)
	if container.Runtime.DisableTUI || !opts.streams.isTTY() {
		return runLineMode(ctx, container, opts.streams, start)
	}
	return runTUI(ctx, container, start)
}

// startRoute sends signed-out users to login whatever they asked for.
func startRoute(requested screen.Route, sess *session.Session) screen.Route {
	_, signedIn := sess.Token()
	switch requested {
	case screen.RouteLogin:
		return screen.RouteLogin
	case screen.RouteOnboarding, screen.RouteChat, screen.RouteHome:
		if !signedIn {
			return screen.RouteLogin
		}
		return requested
	default:
		if signedIn {
			return screen.RouteChat
		}
		return screen.RouteLogin
	}
}
