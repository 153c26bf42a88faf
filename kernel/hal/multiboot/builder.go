package multiboot

import "encoding/binary"

// Builder assembles a multiboot2 information block. It is used by boot
// environments that do not go through a real bootloader, such as the host
// simulator, and by tests.
type Builder struct {
	cmdLine     string
	cmdLineSet  bool
	regions     []MemoryMapEntry
	framebuffer *FramebufferInfo
}

// SetCmdLine sets the contents of the boot command line tag.
func (b *Builder) SetCmdLine(cmdLine string) *Builder {
	b.cmdLine = cmdLine
	b.cmdLineSet = true
	return b
}

// AddMemRegion appends an entry to the memory map tag. Entries are emitted in
// the order they were added.
func (b *Builder) AddMemRegion(physAddr, length uint64, entryType MemoryEntryType) *Builder {
	b.regions = append(b.regions, MemoryMapEntry{PhysAddress: physAddr, Length: length, Type: entryType})
	return b
}

// SetFramebuffer sets the contents of the framebuffer info tag.
func (b *Builder) SetFramebuffer(info FramebufferInfo) *Builder {
	b.framebuffer = &info
	return b
}

// Bytes encodes the information block.
func (b *Builder) Bytes() []byte {
	out := make([]byte, infoHeaderSize)

	if b.cmdLineSet {
		payload := append([]byte(b.cmdLine), 0)
		out = appendTag(out, tagBootCmdLine, payload)
	}

	if len(b.regions) != 0 {
		const entrySize = 24
		payload := make([]byte, mmapHeaderSize+entrySize*len(b.regions))
		binary.LittleEndian.PutUint32(payload[0:], entrySize)
		for index, region := range b.regions {
			entry := payload[mmapHeaderSize+index*entrySize:]
			binary.LittleEndian.PutUint64(entry[0:], region.PhysAddress)
			binary.LittleEndian.PutUint64(entry[8:], region.Length)
			binary.LittleEndian.PutUint32(entry[16:], uint32(region.Type))
		}
		out = appendTag(out, tagMemoryMap, payload)
	}

	if b.framebuffer != nil {
		payload := make([]byte, 24)
		binary.LittleEndian.PutUint64(payload[0:], b.framebuffer.PhysAddr)
		binary.LittleEndian.PutUint32(payload[8:], b.framebuffer.Pitch)
		binary.LittleEndian.PutUint32(payload[12:], b.framebuffer.Width)
		binary.LittleEndian.PutUint32(payload[16:], b.framebuffer.Height)
		payload[20] = b.framebuffer.Bpp
		payload[21] = uint8(b.framebuffer.Type)
		out = appendTag(out, tagFramebufferInfo, payload)
	}

	out = appendTag(out, tagMbSectionEnd, nil)
	binary.LittleEndian.PutUint32(out[0:], uint32(len(out)))

	return out
}

// appendTag appends a tag header followed by payload to out and pads the
// result to the next 8-byte boundary.
func appendTag(out []byte, tag tagType, payload []byte) []byte {
	var hdr [tagHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:], uint32(tag))
	binary.LittleEndian.PutUint32(hdr[4:], uint32(tagHeaderSize+len(payload)))

	out = append(out, hdr[:]...)
	out = append(out, payload...)
	for len(out)%8 != 0 {
		out = append(out, 0)
	}

	return out
}
