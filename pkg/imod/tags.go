package imod

import "imodkit/pkg/binio"

// Chunk tags. Every tag is exactly four ASCII bytes.
const (
	TagModel   = "IMOD"
	TagObject  = "OBJT"
	TagContour = "CONT"
	TagMesh    = "MESH"
	TagSizes   = "SIZE"
	TagMat     = "IMAT"
	TagMeshPar = "MEPA"
	TagView    = "VIEW"
	TagMinx    = "MINX"
	TagEOF     = "IEOF"
)

// Object-level storage chunks carried as opaque CHUNK records. Only their
// size survives a round trip; the payload is rewritten as zeros.
var storeTags = []string{"MOST", "OBST", "COST", "MEST"}

var (
	childTags   = []string{TagContour, TagMesh}
	trailerTags = append([]string{TagMat, TagMeshPar}, storeTags...)
	modelTags   = []string{TagView, TagMinx, TagEOF}
)

// nextTag reads one tag and matches it against known. On a miss the tag is
// rewound so the caller sees the same bytes again, and ok is false.
func nextTag(r *binio.Reader, known []string) (tag string, ok bool, err error) {
	tag, err = r.ReadTag()
	if err != nil {
		return "", false, err
	}
	for _, k := range known {
		if tag == k {
			return tag, true, nil
		}
	}
	r.Rewind(binio.TagSize)
	return tag, false, nil
}

func tagID(tag string) int32 {
	b := []byte(tag)
	return int32(uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]))
}

func idTag(id int32) string {
	u := uint32(id)
	return string([]byte{byte(u >> 24), byte(u >> 16), byte(u >> 8), byte(u)})
}
