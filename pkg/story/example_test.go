package story_test

import (
	"fmt"

	"github.com/matzehuels/storyboard/pkg/story"
)

func ExampleBoard() {
	b := story.New()
	_, _ = b.AddBranch(story.Branch{ID: "main", Name: "Opening"})
	_, _ = b.AddNode(story.Node{ID: "intro", Type: story.TypeStoryFrame})
	_, _ = b.AddNode(story.Node{ID: "choice", Type: story.TypeExploration})
	_ = b.AddNodeToBranch("main", "intro", story.End)
	_ = b.AddNodeToBranch("main", "choice", story.End)

	// A path diverging from the decision point.
	_, _ = b.AddNode(story.Node{ID: "left", Type: story.TypeBranchStart})
	_, _ = b.AddBranch(story.Branch{
		ID:             "left-path",
		ParentBranchID: "main",
		OriginNodeID:   "choice",
		NodeIDs:        []string{"left"},
	})

	br, _ := b.Branch("left-path")
	fmt.Println("Branches:", b.BranchCount())
	fmt.Println("Level of left-path:", br.Level)
	fmt.Println("Valid:", b.Validate() == nil)
	// Output:
	// Branches: 2
	// Level of left-path: 1
	// Valid: true
}

func ExampleBoard_MoveNode() {
	b := story.New()
	_, _ = b.AddBranch(story.Branch{ID: "main"})
	for _, id := range []string{"a", "b", "c"} {
		_, _ = b.AddNode(story.Node{ID: id, Type: story.TypeStoryFrame})
		_ = b.AddNodeToBranch("main", id, story.End)
	}

	_ = b.MoveNode("main", "c", 0)

	br, _ := b.Branch("main")
	for _, id := range br.NodeIDs {
		n, _ := b.Node(id)
		fmt.Println(n.NodeIndex, n.ID)
	}
	// Output:
	// 0 c
	// 1 a
	// 2 b
}
