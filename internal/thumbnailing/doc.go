// Package thumbnailing generates preview frames for cataloged clips on the
// background lane. Thumbnails are a convenience, not a guarantee: the stage
// completes the item even when extraction fails, and the clip record stays
// valid without one.
package thumbnailing
