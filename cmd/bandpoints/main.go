// Command bandpoints runs the marching-band points server and provides a
// command-line client for it.
package main

func main() {
	Execute()
}
