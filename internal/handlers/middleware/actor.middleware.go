package middleware

import (
	"roomledger/internal/services"

	"github.com/gofiber/fiber/v2"
)

const (
	// ActorHeader carries the staff identity asserted by the API gateway.
	ActorHeader     = "X-Actor"
	ActorRoleHeader = "X-Actor-Role"

	actorLocalKey = "actorMeta"
)

// Actor captures who is calling and from where, for the audit trail. It
// never rejects a request; RequireActor does that on mutating routes.
func (m *Middleware) Actor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(actorLocalKey, services.ActorMeta{
			Actor:     c.Get(ActorHeader),
			Role:      c.Get(ActorRoleHeader),
			IPAddress: c.IP(),
			UserAgent: c.Get(fiber.HeaderUserAgent),
		})
		return c.Next()
	}
}

// RequireActor rejects mutating requests that carry no actor identity, so
// every audit entry names a person.
func (m *Middleware) RequireActor() fiber.Handler {
	log := m.log.Function("RequireActor")

	return func(c *fiber.Ctx) error {
		actor := GetActor(c)
		if actor.Actor == "" {
			log.Warn("request without actor identity", "path", c.Path(), "ip", c.IP())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Actor identity required",
			})
		}
		return c.Next()
	}
}

// GetActor retrieves the actor metadata stored by the Actor middleware.
func GetActor(c *fiber.Ctx) services.ActorMeta {
	if actor, ok := c.Locals(actorLocalKey).(services.ActorMeta); ok {
		return actor
	}
	return services.ActorMeta{IPAddress: c.IP(), UserAgent: c.Get(fiber.HeaderUserAgent)}
}
