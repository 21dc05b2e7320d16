// Command commissionctl recomputes and inspects commission from the command line.
package main

func main() {
	Execute()
}
