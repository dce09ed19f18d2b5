// Package alarm contains the domain types of the alarm business logic.
//
// It defines Config (a threshold alarm bound to a zone) and Event (an immutable
// record of a breach) with Clone helpers to avoid leaking internal references.
package alarm
