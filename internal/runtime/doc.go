/*
Package runtime holds the navigation machinery: instances, the per-user stack,
the dispatcher loop and the stack codec.

It is internal; callers go through courselet.Engine.
*/
package runtime
