// Command courselet serves and inspects courselet navigation flows.
package main

func main() {
	Execute()
}
