// Command wardrobe 是时尚推荐引擎的命令行入口。
package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	var err error
	switch cmd := os.Args[1]; cmd {
	case "recommend":
		err = runRecommend(os.Args[2:])
	case "capsule":
		err = runCapsule(os.Args[2:])
	case "insights":
		err = runInsights(os.Args[2:])
	case "quiz":
		err = runQuiz(os.Args[2:])
	case "item":
		err = runItem(os.Args[2:])
	case "import":
		err = runImport(os.Args[2:])
	case "stream":
		err = runStream(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "wardrobe %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  wardrobe <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  recommend  Recommend items for a set of liked ids")
	fmt.Println("  capsule    Build a capsule wardrobe from liked ids")
	fmt.Println("  insights   Summarize style preferences from liked / disliked ids")
	fmt.Println("  quiz       Sample category-balanced items for a style quiz")
	fmt.Println("  item       Print one catalog item")
	fmt.Println("  import     Copy a catalog file into the redis store")
	fmt.Println("  stream     Answer JSON Lines requests from stdin until EOF")
	fmt.Println()
	fmt.Println("Use 'wardrobe <command> -h' for command-specific flags.")
}
