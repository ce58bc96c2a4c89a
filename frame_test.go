package outbreaksim

import "testing"

func TestFrameStack_PushAssignsIncreasingIDsAndParentage(t *testing.T) {
	s := newFrameStack()
	root := s.push() // first primary, parent is the sentinel (ID 0)
	if root.ID != 1 || root.ParentID != 0 {
		t.Errorf("root frame: got ID=%d ParentID=%d, want ID=1 ParentID=0", root.ID, root.ParentID)
	}
	child := s.push()
	if child.ID != 2 || child.ParentID != 1 {
		t.Errorf("child frame: got ID=%d ParentID=%d, want ID=2 ParentID=1", child.ID, child.ParentID)
	}
}

func TestFrameStack_ResetClearsDepthAndIDCounter(t *testing.T) {
	s := newFrameStack()
	s.push()
	s.push()
	s.reset()
	if s.depth != 0 {
		t.Errorf(UnequalIntParameterError, "depth after reset", 0, s.depth)
	}
	first := s.push()
	if first.ID != 1 {
		t.Errorf(UnequalIntParameterError, "ID after reset", 1, int(first.ID))
	}
}

func TestFrameStack_GrowsPastInitialCapacity(t *testing.T) {
	s := newFrameStack()
	for i := 0; i < initLayers*2; i++ {
		s.push()
	}
	if s.depth != initLayers*2 {
		t.Errorf(UnequalIntParameterError, "depth", initLayers*2, s.depth)
	}
	if len(s.frames) <= s.depth {
		t.Fatalf("backing array (len %d) did not grow past depth %d", len(s.frames), s.depth)
	}
}

func TestFrameStack_PopRestoresPriorDepth(t *testing.T) {
	s := newFrameStack()
	s.push()
	s.push()
	s.pop()
	if s.depth != 1 {
		t.Errorf(UnequalIntParameterError, "depth after pop", 1, s.depth)
	}
	if !s.atRoot() && s.depth == 0 {
		t.Fatal("atRoot inconsistent with depth")
	}
}
