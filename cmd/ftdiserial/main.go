/*
Copyright © 2025 espkit contributors
*/
package main

import "github.com/espkit/ftdiserial/cmd"

func main() {
	cmd.Execute()
}
