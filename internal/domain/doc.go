// Package domain holds the model types shared by the store, the broadcast
// hub, and the HTTP layer. Types here are plain data; all behavior that
// mutates state lives in internal/store.
package domain
