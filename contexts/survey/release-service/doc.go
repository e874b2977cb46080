// Package releaseservice packages live question sets into immutable versions
// and releases. Both sequences are poll-exclusive, monotone, and append-only;
// nothing in this service updates a snapshot after it lands.
package releaseservice
