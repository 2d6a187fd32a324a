// Package models defines server-side data models persisted in the metadata store.
package models
