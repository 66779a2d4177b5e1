// Package tagpool - pool of stateful backend sessions labeled with tags.
/*
A tag describes the state of a session, for example "L=FR;TZ=UTC". Acquire
hands out a session in the requested state: a free session with exactly the
requested tag is reused as is, any other session is brought to the requested
state by the configured reconciliation procedure before it is handed out.
Release returns the session to the pool, optionally recording the tag the
caller left it in.
*/
package tagpool
