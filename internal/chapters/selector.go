package chapters

import (
	"strconv"
	"strings"
)

// Filter narrows a chapter list by the selection flags. A single
// chapter selector matches by chapter id first, then by 1-based
// position. Range and list selectors are positional. An empty
// selection means all.
func Filter(all []Chapter, chapter string, rng string, list string) []Chapter {
	if chapter != "" {
		if id, err := strconv.ParseInt(strings.TrimSpace(chapter), 10, 64); err == nil {
			if byID := FilterByID(all, id); len(byID) > 0 {
				return byID
			}
			if id > 0 && id <= int64(len(all)) {
				return []Chapter{all[id-1]}
			}
		}
		return nil
	}
	if rng != "" {
		return FilterRange(all, rng)
	}
	if list != "" {
		return FilterList(all, list)
	}
	return all
}

func FilterByID(all []Chapter, id int64) []Chapter {
	var out []Chapter
	for _, ch := range all {
		if ch.ID == id {
			out = append(out, ch)
		}
	}
	return out
}

func FilterRange(all []Chapter, rng string) []Chapter {
	parts := strings.Split(rng, "-")
	if len(parts) != 2 {
		return nil
	}
	start, err1 := atoi(parts[0])
	end, err2 := atoi(parts[1])
	if err1 != nil || err2 != nil {
		return nil
	}
	if start <= 0 || end <= 0 || start > end || end > len(all) {
		return nil
	}
	return all[start-1 : end]
}

func FilterList(all []Chapter, list string) []Chapter {
	nums := strings.Split(list, ",")
	out := []Chapter{}
	for _, n := range nums {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		idx, err := atoi(n)
		if err != nil {
			continue
		}
		if idx > 0 && idx <= len(all) {
			out = append(out, all[idx-1])
		}
	}
	return out
}

func atoi(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
