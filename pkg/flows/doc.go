/*
Package flows defines the bundled navigation specifications:

  - browse: the base flow of every stack (course home, courselet, concepts).
  - slideshow: steps through a courselet one slide at a time.
  - test: a minimal flow that exercises every behavior hook.
*/
package flows
