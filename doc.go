// Package backend provides the social app notification API server.

// This package contains the main application entry point. The actual API
// documentation is organized into subpackages:

// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/models: Data models and database schemas
// - internal/auth: Authentication and authorization services
// - internal/notifications: Notification delivery, read state, and summaries
// - internal/websocket: WebSocket server for real-time room routing
// - internal/database: Database connection and migrations
// - internal/cache: Redis client for unread count caching
// - internal/middleware: HTTP middleware (request IDs, admin gating, etc.)
// - internal/metrics: Prometheus instrumentation
// - internal/telemetry: OpenTelemetry tracing setup
// - internal/seed: Development data seeding

// See the individual package documentation for detailed API reference.
package backend
