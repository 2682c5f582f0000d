// Package main is the entry point for brandfetchd.
package main

func main() {
	Execute()
}
