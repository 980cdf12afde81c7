// actiongate guards autonomous browser agents: every action is classified,
// scored and allowed, confirmed or blocked before it runs.
package main

import "github.com/ppiankov/actiongate/internal/cli"

func main() {
	cli.Execute()
}
