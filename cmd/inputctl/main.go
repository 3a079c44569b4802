// inputctl manages the per-user keyboard input methods: it lists, adds, edits
// and removes them, selects the default and applies declarative profiles.
package main

func main() {
	Execute()
}
