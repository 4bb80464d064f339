package reporter

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aarsakian/FileRecovery/FS"
	"github.com/aarsakian/FileRecovery/analyzer"
	"github.com/aarsakian/FileRecovery/utils"
)

// Reporter renders the console surface of a run: discovery lines,
// progress, analysis findings and the selection prompt.
type Reporter struct {
	Out          io.Writer
	ShowProgress bool
}

func (rp Reporter) ShowVolumeInfo(signature string, bytesPerSector uint32, sectorsPerCluster uint32) {
	fmt.Fprintf(rp.Out, "[*] Detected %s volume (%d bytes/sector, %d sectors/cluster)\n",
		signature, bytesPerSector, sectorsPerCluster)
}

func (rp Reporter) ShowCandidate(candidate FS.CandidateFile) {
	fmt.Fprintf(rp.Out, "[+] #%d Found file \"%s\" at cluster %d (%d bytes)\n",
		candidate.FileId, candidate.DisplayName,
		FS.StartCluster(candidate.Location), candidate.SizeBytes)
}

func (rp Reporter) ShowProgressPercent(percentage float64) {
	if !rp.ShowProgress {
		return
	}
	fmt.Fprintf(rp.Out, "\r[*] Progress: %5.2f%%", percentage)
}

func (rp Reporter) EndProgress() {
	if rp.ShowProgress {
		fmt.Fprintln(rp.Out)
	}
}

func (rp Reporter) ShowAnalysis(candidate FS.CandidateFile, status analyzer.Status) {
	if !status.IsCorrupted && !status.HasInvalidFileName && !status.HasOverwrittenClusters {
		fmt.Fprintf(rp.Out, "[*] #%d \"%s\" shows no corruption signs\n",
			candidate.FileId, candidate.DisplayName)
		return
	}

	fmt.Fprintf(rp.Out, "[!] #%d \"%s\" corruption findings:\n", candidate.FileId, candidate.DisplayName)
	if status.HasFragmentedClusters {
		fmt.Fprintf(rp.Out, "    fragmentation %.2f\n", status.Fragmentation)
	}
	if status.HasBackJumps {
		fmt.Fprintf(rp.Out, "    %d backward jumps\n", status.BackJumps)
	}
	if status.HasRepeatedClusters {
		fmt.Fprintf(rp.Out, "    %d repeated clusters\n", status.RepeatedClusters)
	}
	if status.HasLargeGaps {
		fmt.Fprintf(rp.Out, "    %d large gaps\n", status.LargeGaps)
	}
	if status.HasOverwrittenClusters {
		fmt.Fprintf(rp.Out, "    %d clusters reused by other files\n", len(status.ProblematicClusters))
	}
	if status.HasInvalidFileName {
		fmt.Fprintf(rp.Out, "    filename looks corrupted\n")
	}
}

func (rp Reporter) ShowRecoveryResult(candidate FS.CandidateFile, status analyzer.Status, outputPath string) {
	fmt.Fprintf(rp.Out, "[+] #%d recovered %d/%d clusters (%d bytes) -> %s\n",
		candidate.FileId, status.RecoveredClusters, status.ExpectedClusters,
		status.RecoveredBytes, outputPath)
}

func (rp Reporter) ShowFileHash(hash string, digest string) {
	fmt.Fprintf(rp.Out, "    %s %s\n", hash, digest)
}

func (rp Reporter) ShowSummary(recovered int, total int) {
	fmt.Fprintf(rp.Out, "[*] Recovered %d of %d files\n", recovered, total)
}

// Selection is the user's answer to the recovery prompt.
type Selection struct {
	All  bool
	Ids  []uint16
	Quit bool
}

// PromptSelection asks which candidates to recover: 1 recovers all,
// 2 asks for comma separated ids, 0 exits.
func (rp Reporter) PromptSelection(in io.Reader) Selection {
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprintf(rp.Out, "\nSelect files to recover: 1=all, 2=by id, 0=exit: ")
		if !scanner.Scan() {
			return Selection{Quit: true}
		}

		switch strings.TrimSpace(scanner.Text()) {
		case "1":
			return Selection{All: true}
		case "2":
			fmt.Fprintf(rp.Out, "Enter comma separated ids: ")
			if !scanner.Scan() {
				return Selection{Quit: true}
			}
			ids := parseIds(scanner.Text())
			if len(ids) == 0 {
				fmt.Fprintf(rp.Out, "[-] No valid ids given\n")
				continue
			}
			return Selection{Ids: ids}
		case "0":
			return Selection{Quit: true}
		default:
			fmt.Fprintf(rp.Out, "[-] Unknown choice\n")
		}
	}
}

func parseIds(line string) []uint16 {
	var ids []uint16
	for _, entry := range utils.GetEntries(line) {
		id, err := strconv.ParseUint(strings.TrimSpace(entry), 10, 16)
		if err != nil {
			continue
		}
		ids = append(ids, uint16(id))
	}
	return ids
}
