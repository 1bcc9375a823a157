package cmd

import (
	"fmt"

	"github.com/emrgen/recall/internal/cache"
	"github.com/emrgen/recall/internal/config"
	"github.com/emrgen/recall/internal/filestore"
	"github.com/emrgen/recall/internal/service"
	"github.com/emrgen/recall/internal/store"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "node commands",
}

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "association commands",
}

func init() {
	rootCmd.AddCommand(nodeCmd)
	nodeCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	nodeCmd.AddCommand(createNodeCmd())
	nodeCmd.AddCommand(searchNodesCmd())
	nodeCmd.AddCommand(deleteNodeCmd())

	rootCmd.AddCommand(linkCmd)
	linkCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	linkCmd.AddCommand(addLinkCmd())
	linkCmd.AddCommand(removeLinkCmd())
	linkCmd.AddCommand(graphCmd())
}

func nodeService() *service.NodeService {
	cnf := config.LoadConfig()
	gs := store.NewGormStore(config.GetDb(cnf))

	var nodeCache cache.NodeCache
	if cnf.RedisAddr != "" {
		nodeCache = cache.NewRedis(cnf.RedisAddr)
	}

	return service.NewNodeService(gs, filestore.NewLocator(cnf.StorageRoot), nodeCache)
}

func associationService() *service.AssociationService {
	cnf := config.LoadConfig()
	return service.NewAssociationService(store.NewGormStore(config.GetDb(cnf)))
}

func createNodeCmd() *cobra.Command {
	var user string
	var nodeType string
	var name string
	var content string

	command := &cobra.Command{
		Use:   "create",
		Short: "create a node",
		Run: func(cmd *cobra.Command, args []string) {
			if user == "" {
				color.Red("missing: --user")
				return
			}

			node, err := nodeService().CreateNode(cmd.Context(), user, &service.CreateNodeParams{
				Type:    nodeType,
				Name:    name,
				Content: content,
			})
			if err != nil {
				color.Red("create failed: %v", err)
				return
			}

			color.Green("created node %s", node.UUID)
		},
	}

	command.Flags().StringVarP(&user, "user", "u", "", "owning identity")
	command.Flags().StringVarP(&nodeType, "type", "t", "text", "node type")
	command.Flags().StringVarP(&name, "name", "n", "", "node name")
	command.Flags().StringVarP(&content, "content", "c", "", "node content")

	return command
}

func searchNodesCmd() *cobra.Command {
	var user string
	var query string
	var page int

	command := &cobra.Command{
		Use:   "search",
		Short: "search nodes",
		Run: func(cmd *cobra.Command, args []string) {
			if user == "" {
				color.Red("missing: --user")
				return
			}

			nodes, total, err := nodeService().SearchNodes(cmd.Context(), user, query, page, 0)
			if err != nil {
				color.Red("search failed: %v", err)
				return
			}

			for _, node := range nodes {
				fmt.Printf("%s  %-10s  %s\n", node.UUID, node.Type, node.Name)
			}
			color.Green("%d of %d nodes", len(nodes), total)
		},
	}

	command.Flags().StringVarP(&user, "user", "u", "", "owning identity")
	command.Flags().StringVarP(&query, "query", "q", "", "substring query")
	command.Flags().IntVarP(&page, "page", "p", 0, "result page")

	return command
}

func deleteNodeCmd() *cobra.Command {
	var user string
	var id string

	command := &cobra.Command{
		Use:   "delete",
		Short: "delete a node and its associations",
		Run: func(cmd *cobra.Command, args []string) {
			if user == "" || id == "" {
				color.Red("missing: --user and --node")
				return
			}

			if err := nodeService().DeleteNode(cmd.Context(), user, id); err != nil {
				color.Red("delete failed: %v", err)
				return
			}

			color.Green("deleted node %s", id)
		},
	}

	command.Flags().StringVarP(&user, "user", "u", "", "owning identity")
	command.Flags().StringVarP(&id, "node", "n", "", "node uuid")

	return command
}

func addLinkCmd() *cobra.Command {
	var user string
	var a string
	var b string

	command := &cobra.Command{
		Use:   "add",
		Short: "link two nodes",
		Run: func(cmd *cobra.Command, args []string) {
			if user == "" || a == "" || b == "" {
				color.Red("missing: --user, --from and --to")
				return
			}

			assoc, err := associationService().Create(cmd.Context(), user, a, b)
			if err != nil {
				color.Red("link failed: %v", err)
				return
			}

			color.Green("linked %s -> %s (strength %d)", assoc.NodeUUID, assoc.LinkedNodeUUID, assoc.LinkStrength)
		},
	}

	command.Flags().StringVarP(&user, "user", "u", "", "owning identity")
	command.Flags().StringVarP(&a, "from", "a", "", "anchor node uuid")
	command.Flags().StringVarP(&b, "to", "b", "", "target node uuid")

	return command
}

func removeLinkCmd() *cobra.Command {
	var user string
	var a string
	var b string
	var both bool

	command := &cobra.Command{
		Use:   "remove",
		Short: "unlink two nodes",
		Run: func(cmd *cobra.Command, args []string) {
			if user == "" || a == "" || b == "" {
				color.Red("missing: --user, --from and --to")
				return
			}

			if err := associationService().Delete(cmd.Context(), user, a, b, both); err != nil {
				color.Red("unlink failed: %v", err)
				return
			}

			color.Green("unlinked %s -> %s", a, b)
		},
	}

	command.Flags().StringVarP(&user, "user", "u", "", "owning identity")
	command.Flags().StringVarP(&a, "from", "a", "", "anchor node uuid")
	command.Flags().StringVarP(&b, "to", "b", "", "target node uuid")
	command.Flags().BoolVar(&both, "both", false, "remove a bidirectional link entirely")

	return command
}

func graphCmd() *cobra.Command {
	var user string
	var anchor string

	command := &cobra.Command{
		Use:   "graph",
		Short: "show the graph around a node",
		Run: func(cmd *cobra.Command, args []string) {
			if user == "" {
				color.Red("missing: --user")
				return
			}

			graph, err := associationService().GraphView(cmd.Context(), user, anchor)
			if err != nil {
				color.Red("graph failed: %v", err)
				return
			}

			for _, node := range graph.Nodes {
				fmt.Printf("%s  %-10s  %s\n", node.UUID, node.Type, node.Name)
			}
			for _, assoc := range graph.Associations {
				arrow := "->"
				if assoc.LinkStart != nil {
					arrow = "<->"
				}
				fmt.Printf("%s %s %s (%d)\n", assoc.NodeUUID, arrow, assoc.LinkedNodeUUID, assoc.LinkStrength)
			}
		},
	}

	command.Flags().StringVarP(&user, "user", "u", "", "owning identity")
	command.Flags().StringVarP(&anchor, "anchor", "a", "", "anchor node uuid")

	return command
}
