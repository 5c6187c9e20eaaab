// Command scentctl exports and imports catalog CSV files from the shell,
// using the same batching and column mapping as the admin server.
package main

func main() {
	Execute()
}
