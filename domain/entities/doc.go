// Package entities defines core domain types and wire protocol structures.
// These types serve dual purpose: domain entities AND JSON wire format DTOs.
// They are part of the ABI contract with the script side and must remain
// stable once a bundle format is published.
package entities
