package sandbox

import "testing"

// FuzzValidateExisting mirrors the teacher's FuzzSafeJoin (fuzz_safejoin_test.go):
// it hunts for path-traversal or panic cases in the join/validate path.
func FuzzValidateExisting(f *testing.F) {
	root := f.TempDir()
	seeds := []string{"a.txt", "./a.txt", "../a", "..//..//etc/passwd", "/etc/passwd", "dir/../a", "C:foo", "CON", "a\x00b"}
	for _, s := range seeds {
		f.Add(s)
	}
	sb := New(StaticRoots{root}, nil)
	f.Fuzz(func(t *testing.T, p string) {
		vp, err := sb.ValidateForWrite(p)
		if err != nil {
			return
		}
		if !isInside(root, vp.ResolvedReal) {
			t.Fatalf("validated path escaped root: %q -> %q", p, vp.ResolvedReal)
		}
	})
}
