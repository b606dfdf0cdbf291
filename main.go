// SPDX-License-Identifier: MPL-2.0

// pyreq packages a service's Python requirements for serverless deployment.
package main

import cmd "github.com/Toumetis/serverless-python-requirements/cmd/pyreq"

func main() {
	cmd.Execute()
}
