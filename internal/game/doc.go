// Package game runs a Brains & Bets table.
//
// The main type is Session, which owns the player roster, the phase state
// machine and the one-second countdown:
//
//	lobby -> question -> betting -> reveal -> scores -> question ...
//
// After the last question's scores the session publishes final standings
// and returns to the lobby for the next game.
//
// # Basic Usage
//
//	s, err := game.NewSession(game.DefaultGameConfig(), repo, game.WithLogger(logger))
//	sub := game.NewChannelSubscriber(64)
//	s.Subscribe(sub)
//	if err := s.Start(ctx); err != nil {
//	    return err
//	}
//	s.AddPlayer("tw:alice", "Alice", game.OriginTwitch)
//
// Commands return false when refused and leave the session unchanged. The
// Try variants return a *RejectedError naming the reason.
//
// # Deterministic Testing
//
// Inject a mock clock with WithClock(quartz.NewMock(t)) and advance it one
// second at a time; each advance produces exactly one TickEvent.
//
// # Events
//
// Events are delivered on a separate goroutine in the order the session
// produced them. Subscribers may call back into the session.
package game
