/*
Package live coordinates an instructor and many students through a shared live session.

The instructor drives a LiveQuestion through START, RESPONSE, ASSESSMENT and ENDED
with the Coordinator. Students run the "live" specification pushed on top of their
browsing stack; on every request its node behavior re-reads the shared session and
routes the student to answer, wait, self-assess, join a new question or see results.
When the session ends, the next request pops the live flow and the student resumes
browsing where they left off.
*/
package live
